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

package cache

// FetchEvents is the Fetcher's callback-hook surface: the core never
// owns a progress bar or log line, it only reports
// through this interface, which embedders (a CLI, a logrus-backed
// default, a test spy) implement as they see fit.
type FetchEvents interface {
	Started(url string)
	Progress(url string, bytes int64)
	Finished(url string, localPath string)
	Failed(url string, err error)
}

// NopEvents implements FetchEvents by doing nothing; it is the default
// when a caller supplies none.
type NopEvents struct{}

func (NopEvents) Started(string)          {}
func (NopEvents) Progress(string, int64)  {}
func (NopEvents) Finished(string, string) {}
func (NopEvents) Failed(string, error)    {}
