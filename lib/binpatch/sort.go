//
// Copyright (c) SAS Institute Inc.
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
//

package binpatch

type sorter struct {
	p *PatchSet
}

func (s sorter) Len() int {
	return len(s.p.Patches)
}

func (s sorter) Less(i, j int) bool {
	return s.p.Patches[i].Offset < s.p.Patches[j].Offset
}

func (s sorter) Swap(i, j int) {
	s.p.Patches[i], s.p.Patches[j] = s.p.Patches[j], s.p.Patches[i]
}
