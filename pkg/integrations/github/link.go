package github

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// lastPage extracts the page number of the rel="last" entry of a Link
// header. With per_page=1 that is the total number of items.
func lastPage(h http.Header) (int, bool) {
	for _, link := range h.Values("Link") {
		for _, part := range strings.Split(link, ",") {
			target, params, ok := strings.Cut(strings.TrimSpace(part), ";")
			if !ok || !strings.Contains(params, `rel="last"`) {
				continue
			}
			u, err := url.Parse(strings.Trim(strings.TrimSpace(target), "<>"))
			if err != nil {
				return 0, false
			}
			n, err := strconv.Atoi(u.Query().Get("page"))
			if err != nil || n < 1 {
				return 0, false
			}
			return n, true
		}
	}
	return 0, false
}
