// Copyright (c) 2026 Quill Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// DateDisplayFormat is the layout used for a post's human-readable
// publish date, e.g. "August 29, 2026".
const DateDisplayFormat = "January 2, 2006"

// Post represents a blog post. Date is the display string captured at
// creation time; CreatedAt/UpdatedAt are the machine timestamps.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Date      string    `json:"date"`
	Body      string    `json:"body"`
	ImgURL    string    `json:"img_url"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
