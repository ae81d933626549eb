// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package msgpack

// Hooks are the typed capability interface spec.md §9 describes as the
// strongly-typed-target replacement for Python's "any callable" hook
// config: one function type per customization point, populated from
// Options. Each may replace the built value outright; each may fail, and a
// failure (returned error or recovered panic) surfaces as *HookError.

// ObjectHook is invoked with the completed map (as a *Map) once a map
// container finishes, when ObjectPairsHook is not configured. Its return
// value replaces the map in the decoded tree.
type ObjectHook func(*Map) (any, error)

// ObjectPairsHook is invoked with the raw, possibly-duplicate-containing
// pair list instead of a *Map. Mutually exclusive with ObjectHook.
type ObjectPairsHook func(Pairs) (any, error)

// ListHook is invoked with the completed array — a []Value when UseList is
// true, a Tuple otherwise. Its return value replaces the array in the
// decoded tree.
type ListHook func(any) (any, error)

func callObjectHook(hook ObjectHook, m *Map) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newHookError(r)
		}
	}()
	result, err = hook(m)
	if err != nil {
		return nil, newHookError(err)
	}
	return result, nil
}

func callPairsHook(hook ObjectPairsHook, pairs Pairs) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newHookError(r)
		}
	}()
	result, err = hook(pairs)
	if err != nil {
		return nil, newHookError(err)
	}
	return result, nil
}

func callListHook(hook ListHook, arr any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newHookError(r)
		}
	}()
	result, err = hook(arr)
	if err != nil {
		return nil, newHookError(err)
	}
	return result, nil
}
