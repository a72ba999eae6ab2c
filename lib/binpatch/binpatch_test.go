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

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	fp := filepath.Join(t.TempDir(), "image")
	require.NoError(t, os.WriteFile(fp, []byte(contents), 0644))
	return fp
}

func TestApplyInPlace(t *testing.T) {
	fp := writeTemp(t, "0123456789")
	f, err := os.OpenFile(fp, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()
	p := New()
	p.Add(6, 2, []byte("xy"))
	p.Add(1, 3, []byte("abc"))
	require.NoError(t, p.Apply(f, fp))
	d, err := os.ReadFile(fp)
	require.NoError(t, err)
	assert.Equal(t, "0abc45xy89", string(d))
}

func TestApplyCopy(t *testing.T) {
	fp := writeTemp(t, "0123456789")
	out := filepath.Join(t.TempDir(), "patched")
	f, err := os.Open(fp)
	require.NoError(t, err)
	defer f.Close()
	p := New()
	p.Add(2, 2, []byte("ab"))
	p.Add(8, 2, []byte("Z"))
	require.NoError(t, p.Apply(f, out))
	d, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "01ab4567Z", string(d))
	// input untouched
	d, err = os.ReadFile(fp)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(d))
}

func TestOverlap(t *testing.T) {
	fp := writeTemp(t, "0123456789")
	f, err := os.OpenFile(fp, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()
	p := New()
	p.Add(0, 4, []byte("aaaa"))
	p.Add(2, 2, []byte("bb"))
	assert.ErrorIs(t, p.Apply(f, fp), ErrOverlap)
}
