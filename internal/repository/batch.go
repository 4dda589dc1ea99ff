package repository

// inBatchSize IN 列表单次绑定的 id 上限；sqlite 默认 32766、postgres 65535 个参数
var inBatchSize = 1000

// chunkIDs 按 inBatchSize 切分，共享底层数组
func chunkIDs(ids []int64) [][]int64 {
	size := inBatchSize
	if size <= 0 {
		size = len(ids)
	}
	out := make([][]int64, 0, len(ids)/max(size, 1)+1)
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

// pageSlice 对已排序的合并结果做 offset/limit
func pageSlice[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return rows[:0]
	}
	rows = rows[offset:]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
