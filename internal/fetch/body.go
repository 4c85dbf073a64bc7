package fetch

import (
	"io"
	"net/http"
)

// 单次响应读取上限：4 MiB，足够覆盖归档页与文章页。
const maxBodyBytes = 4 << 20

func readCapped(resp *http.Response) ([]byte, error) {
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}
