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
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"resolvecache/maven"
	"resolvecache/resolveerr"
)

// ParseMetadata dispatches a module's version listing to the
// dialect-appropriate parser, mirroring Parse's handling of project
// descriptors.
func ParseMetadata(data []byte, dialect Dialect) (*maven.Metadata, error) {
	switch dialect {
	case DialectXML:
		return parseMetadataXML(data)
	case DialectTabular:
		return parseMetadataTabular(data)
	default:
		return nil, fmt.Errorf("repository: unknown dialect %v", dialect)
	}
}

func parseMetadataXML(data []byte) (*maven.Metadata, error) {
	var md maven.Metadata
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&md); err != nil {
		return nil, &resolveerr.ParseError{
			Offset: dec.InputOffset(),
			Err:    fmt.Errorf("parse maven-metadata.xml: %w", err),
		}
	}
	return &md, nil
}

// parseMetadataTabular reads the tabular dialect's "versions.list": one
// version per line, newest last; the last line doubles as both latest
// and release since the pack carries no separate release marker.
func parseMetadataTabular(data []byte) (*maven.Metadata, error) {
	var md maven.Metadata
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		md.Versioning.Versions = append(md.Versioning.Versions, maven.String(line))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if n := len(md.Versioning.Versions); n > 0 {
		latest := md.Versioning.Versions[n-1]
		md.Versioning.Latest = latest
		md.Versioning.Release = latest
	}
	return &md, nil
}
