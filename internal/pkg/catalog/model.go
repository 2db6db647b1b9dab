package catalog

// Page 目录接口的分页响应
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type Game struct {
	ID              int64             `json:"id"`
	Slug            string            `json:"slug"`
	Name            string            `json:"name"`
	Released        string            `json:"released"`
	BackgroundImage string            `json:"background_image"`
	Rating          float64           `json:"rating"`
	RatingsCount    int               `json:"ratings_count"`
	Metacritic      int               `json:"metacritic"`
	Playtime        int               `json:"playtime"`
	Genres          []Genre           `json:"genres"`
	ParentPlatforms []PlatformWrapper `json:"parent_platforms"`
	Tags            []Tag             `json:"tags"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type PlatformWrapper struct {
	Platform Platform `json:"platform"`
}

type Platform struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Tag struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	GamesCount      int    `json:"games_count"`
	ImageBackground string `json:"image_background"`
}

// Query 列表查询参数，零值字段不发送
type Query struct {
	Page     int
	PageSize int
	Ordering string
	Search   string
	Genres   string
	Tags     string
}
