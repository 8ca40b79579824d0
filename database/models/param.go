// Copyright 2026 Blink Labs Software
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

package models

// Param is a governance parameter override applied by an executed
// ParameterChange action. Values are stored as strings and parsed by the
// governance params loader.
type Param struct {
	ID    uint   `gorm:"primarykey"`
	Name  string `gorm:"uniqueIndex;size:64;not null"`
	Value string `gorm:"size:256;not null"`
}

// TableName returns the table name
func (Param) TableName() string {
	return "param"
}
