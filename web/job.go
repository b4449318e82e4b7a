// Copyright 2018 Fabian Wenzelmann
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

package web

import (
	"github.com/google/uuid"
)

// JobID identifies a mosaic request in logs and responses.
type JobID uuid.UUID

// GenJobID returns a new random job id.
func GenJobID() JobID {
	return JobID(uuid.New())
}

func (id JobID) String() string {
	return uuid.UUID(id).String()
}

// ParseJobID parses the string representation of a job id.
func ParseJobID(s string) (JobID, error) {
	id, err := uuid.Parse(s)
	return JobID(id), err
}
