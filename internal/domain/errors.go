package domain

import "errors"

// ErrAlreadyTracked reports that a mention with the same post_id is already
// persisted. It is the expected outcome of the dedup gate, not a failure.
var ErrAlreadyTracked = errors.New("mention already tracked")

// ErrRateLimited reports that the search source refused the request due to
// rate limiting. The cycle aborts and the next scheduled run retries.
var ErrRateLimited = errors.New("source rate limited")
