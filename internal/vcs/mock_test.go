// Copyright 2024 The mkconfig Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vcs

import (
	"context"
)

// mockVCS implements VCS for unit testing.
type mockVCS struct {
	revisionFunc func(ctx context.Context, dir string) (string, error)
	dirtyFunc    func(ctx context.Context, dir string) (bool, error)
}

func (m *mockVCS) Revision(ctx context.Context, dir string) (string, error) {
	if m.revisionFunc != nil {
		return m.revisionFunc(ctx, dir)
	}
	return "", nil
}

func (m *mockVCS) Dirty(ctx context.Context, dir string) (bool, error) {
	if m.dirtyFunc != nil {
		return m.dirtyFunc(ctx, dir)
	}
	return false, nil
}
