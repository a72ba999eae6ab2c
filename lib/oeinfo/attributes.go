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
	"fmt"
	"strings"
)

// AttributeFlags is the SGX ATTRIBUTES.FLAGS bitmask
type AttributeFlags uint64

const (
	FlagDebug     AttributeFlags = 0x0000000000000002
	FlagMode64Bit AttributeFlags = 0x0000000000000004

	// KnownFlags is every bit this package can produce
	KnownFlags = FlagDebug | FlagMode64Bit
)

var flagNames = []struct {
	flag AttributeFlags
	name string
}{
	{FlagDebug, "DEBUG"},
	{FlagMode64Bit, "MODE64BIT"},
}

func (f AttributeFlags) String() string {
	var names []string
	for _, n := range flagNames {
		if f&n.flag != 0 {
			names = append(names, n.name)
		}
	}
	if rest := f &^ KnownFlags; rest != 0 {
		names = append(names, fmt.Sprintf("%#x", uint64(rest)))
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

// DebugPolicy says whether an enclave may be launched in debug mode
type DebugPolicy int

const (
	DebugDisallowed DebugPolicy = iota
	DebugAllowed
)

// PolicyFromBool converts a plain "allow debug" toggle into a DebugPolicy
func PolicyFromBool(allowDebug bool) DebugPolicy {
	if allowDebug {
		return DebugAllowed
	}
	return DebugDisallowed
}

func (p DebugPolicy) String() string {
	if p == DebugAllowed {
		return "allowed"
	}
	return "disallowed"
}

// MakeAttributes expands a debug policy into the attribute bitmask. 64-bit
// mode is always set, the debug bit only when the policy allows it, and no
// other bit is ever set here. Any further bit needs its own policy input.
func MakeAttributes(debug DebugPolicy) AttributeFlags {
	flags := FlagMode64Bit
	if debug == DebugAllowed {
		flags |= FlagDebug
	}
	return flags
}

// DebugAllowed reports whether the settings permit a debug-mode launch
func (s EnclaveSettings) DebugAllowed() bool {
	return s.Attributes&FlagDebug != 0
}
