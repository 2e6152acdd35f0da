// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package repository

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"resolvecache/maven"
	"resolvecache/resolveerr"
)

// parseXML decodes a standard Maven POM, relying on maven.Project's own
// xml struct tags and String.UnmarshalXML whitespace trimming. A
// malformed document fails with a ParseError carrying the byte offset
// the decoder had reached.
func parseXML(data []byte) (*maven.Project, error) {
	var p maven.Project
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&p); err != nil {
		return nil, &resolveerr.ParseError{
			Offset: dec.InputOffset(),
			Err:    fmt.Errorf("parse POM: %w", err),
		}
	}
	return &p, nil
}
