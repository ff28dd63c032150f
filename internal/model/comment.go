// Copyright (c) 2026 Quill Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// MaxCommentLength is the maximum accepted comment length in bytes.
const MaxCommentLength = 300

// Comment represents a reader comment on a post.
type Comment struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	AuthorID  int64     `json:"author_id"`
	PostID    int64     `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
