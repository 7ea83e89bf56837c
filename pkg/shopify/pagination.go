package shopify

import (
	"net/url"
	"strings"
)

// nextPageInfo extracts the page_info cursor of the rel="next" entry of a Link header:
//
//	<https://shop.myshopify.com/admin/api/2024-01/orders.json?limit=250&page_info=abc>; rel="next"
func nextPageInfo(linkHeader string) string {
	for _, part := range strings.Split(linkHeader, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		isNext := false
		for _, attr := range segments[1:] {
			attr = strings.TrimSpace(attr)
			if strings.EqualFold(attr, `rel="next"`) || strings.EqualFold(attr, "rel=next") {
				isNext = true
				break
			}
		}
		if !isNext {
			continue
		}
		raw := strings.TrimSpace(segments[0])
		raw = strings.TrimPrefix(raw, "<")
		raw = strings.TrimSuffix(raw, ">")
		parsed, err := url.Parse(raw)
		if err != nil {
			return ""
		}
		return parsed.Query().Get("page_info")
	}
	return ""
}
