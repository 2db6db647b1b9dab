package dto

// CatalogQueryDTO 游戏目录查询参数
type CatalogQueryDTO struct {
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=40"`
	Ordering string `form:"ordering" validate:"max=32"`
	Search   string `form:"search" validate:"max=64"`
	Genres   string `form:"genres" validate:"max=64"`
	Tags     string `form:"tags" validate:"max=64"`
}
