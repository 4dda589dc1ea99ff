package service

// PageOptions 页码从 1 开始；0 表示使用默认值
type PageOptions struct {
	Page    int `json:"page" form:"page" validate:"gte=0"`
	PerPage int `json:"per_page" form:"per_page" validate:"gte=0"`
}

// Pagination 列表返回的分页信息，NextPage 为 nil 表示没有下一页
type Pagination struct {
	Page     int  `json:"page"`
	PerPage  int  `json:"per_page"`
	HasMore  bool `json:"has_more"`
	NextPage *int `json:"next_page"`
}

// PageLimits 每页条数的默认值与上限
type PageLimits struct {
	Default int
	Max     int
}

func (l PageLimits) normalize(o PageOptions) (page, perPage int) {
	page, perPage = o.Page, o.PerPage
	if page < 1 {
		page = 1
	}
	def := l.Default
	if def <= 0 {
		def = 20
	}
	if perPage <= 0 {
		perPage = def
	}
	if l.Max > 0 && perPage > l.Max {
		perPage = l.Max
	}
	return page, perPage
}

func offsetOf(page, perPage int) int { return (page - 1) * perPage }

// trimPage 查询时多取一条 (perPage+1)，据此判断是否还有下一页，省去 COUNT
func trimPage[T any](rows []T, page, perPage int) ([]T, Pagination) {
	p := Pagination{Page: page, PerPage: perPage}
	if len(rows) > perPage {
		rows = rows[:perPage]
		next := page + 1
		p.HasMore = true
		p.NextPage = &next
	}
	return rows, p
}
