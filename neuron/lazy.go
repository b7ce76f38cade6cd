// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package neuron

// lazy is an explicit two-state cache slot: unset or cached. The zero value
// is unset. A cached zero value (empty skeleton, 0% review) stays
// distinguishable from "never fetched", which string-keyed attribute maps
// cannot express.
type lazy[T any] struct {
	value T
	ok    bool
}

func (l *lazy[T]) set(v T) {
	l.value = v
	l.ok = true
}

func (l *lazy[T]) get() (T, bool) {
	return l.value, l.ok
}

func (l *lazy[T]) clear() {
	var zero T
	l.value = zero
	l.ok = false
}
