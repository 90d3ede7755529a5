// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/juju/errors"
)

// InteractionFunc handles a single user-item interaction.
type InteractionFunc func(userId, itemId string) error

// Source feeds user-item interactions to a handler in stream order. A source can be
// consumed multiple times; each consumption replays the whole stream.
type Source func(InteractionFunc) error

const maxLineSize = 1024 * 1024

// FromFile returns a source reading a TSV file with one `user TAB item` interaction
// per line. Blank lines and lines with fewer than two fields are format errors.
// Fields beyond the second are ignored.
func FromFile(path string) Source {
	return func(handler InteractionFunc) error {
		file, err := os.Open(path)
		if err != nil {
			return errors.Trace(err)
		}
		defer file.Close()
		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
		lineCount := 0
		for scanner.Scan() {
			lineCount++
			line := scanner.Text()
			fields := strings.Split(line, "\t")
			if len(fields) < 2 {
				return errors.Errorf("%s: line %d: expected `user TAB item`, got %q", path, lineCount, line)
			}
			if err = handler(fields[0], fields[1]); err != nil {
				return errors.Trace(err)
			}
		}
		return errors.Trace(scanner.Err())
	}
}

// FromSlice returns a source replaying in-memory interactions.
func FromSlice(interactions [][2]string) Source {
	return func(handler InteractionFunc) error {
		for _, interaction := range interactions {
			if err := handler(interaction[0], interaction[1]); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}
}

// Indicators is the result record emitted per item.
type Indicators struct {
	ForItem        string   `json:"for_item"`
	IndicatedItems []string `json:"indicated_items"`
}

// Recommendations is the result record emitted per user.
type Recommendations struct {
	ForUser          string   `json:"for_user"`
	RecommendedItems []string `json:"recommended_items"`
}

// ResultWriter writes newline-delimited JSON records. Records go to a temporary
// sibling of the target path first and are renamed into place by Close, so a failed
// run leaves no partial output file behind.
type ResultWriter struct {
	path    string
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
}

// NewResultWriter creates a result writer for the given path.
func NewResultWriter(path string) (*ResultWriter, error) {
	file, err := os.Create(path + ".tmp")
	if err != nil {
		return nil, errors.Trace(err)
	}
	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	return &ResultWriter{
		path:    path,
		file:    file,
		writer:  writer,
		encoder: encoder,
	}, nil
}

// Write appends one record.
func (w *ResultWriter) Write(record any) error {
	return errors.Trace(w.encoder.Encode(record))
}

// Close flushes buffered records and moves the temporary file to the target path.
func (w *ResultWriter) Close() error {
	if err := w.writer.Flush(); err != nil {
		_ = w.file.Close()
		return errors.Trace(err)
	}
	if err := w.file.Close(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(os.Rename(w.path+".tmp", w.path))
}

// Discard drops the temporary file without touching the target path.
func (w *ResultWriter) Discard() {
	_ = w.file.Close()
	_ = os.Remove(w.path + ".tmp")
}
