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

package oeinfo

import (
	"crypto/sha256"
	"encoding/hex"
)

// UniqueID returns the enclave measurement (MRENCLAVE) carried by a signed
// SIGSTRUCT
func (s *SigStruct) UniqueID() string {
	return hex.EncodeToString(s.EnclaveHash[:])
}

// SignerID returns MRSIGNER, the SHA-256 digest of the signing key modulus
func (s *SigStruct) SignerID() string {
	d := sha256.Sum256(s.Modulus[:])
	return hex.EncodeToString(d[:])
}
