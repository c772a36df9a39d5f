package tiktok

// searchResponse represents the RapidAPI feed/search response structure.
type searchResponse struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data *searchData `json:"data"`
}

type searchData struct {
	Videos []video `json:"videos"`
}

type video struct {
	VideoID      string  `json:"video_id"`
	AwemeID      string  `json:"aweme_id"`
	Title        string  `json:"title"`
	CreateTime   int64   `json:"create_time"`
	PlayCount    int64   `json:"play_count"`
	DiggCount    int64   `json:"digg_count"`
	CommentCount int64   `json:"comment_count"`
	ShareCount   int64   `json:"share_count"`
	Author       *author `json:"author"`
}

type author struct {
	UniqueID string `json:"unique_id"`
	Nickname string `json:"nickname"`
}
