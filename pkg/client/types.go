package client

import "time"

// Reply is a forum reply as the API returns it.
type Reply struct {
	ID          string    `json:"id"`
	PostID      string    `json:"post_id"`
	Content     string    `json:"content"`
	IsAnonymous bool      `json:"is_anonymous"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
}

// Post is a forum post annotated with reaction and reply counts.
type Post struct {
	ID          string    `json:"id"`
	ForumID     string    `json:"forum_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsAnonymous bool      `json:"is_anonymous"`
	Author      string    `json:"author"`
	LikeCount   int       `json:"like_count"`
	LikedByMe   bool      `json:"liked_by_me"`
	ReplyCount  int       `json:"reply_count"`
	Replies     []Reply   `json:"replies"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReactionState is the like state of a post after a toggle.
type ReactionState struct {
	PostID    string `json:"post_id"`
	Liked     bool   `json:"liked"`
	LikeCount int    `json:"like_count"`
}

// Counselor is a bookable counselor.
type Counselor struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Speciality string `json:"speciality"`
}

// Slot is an open appointment slot.
type Slot struct {
	ID          string `json:"id"`
	CounselorID string `json:"counselor_id"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
}

// Booking is a reservation request.
type Booking struct {
	ID          string `json:"id"`
	CounselorID string `json:"counselor_id"`
	SlotID      string `json:"slot_id"`
	Status      string `json:"status"`
}

func (p Post) clone() Post {
	if p.Replies != nil {
		p.Replies = append(make([]Reply, 0, len(p.Replies)), p.Replies...)
	}
	return p
}
