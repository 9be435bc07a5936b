package schema

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/MKhiriev/go-record-sync/models"
)

// parsePageInfo reads pagination metadata from the X-Page / X-Total-Pages /
// X-Total-Count / Link headers, then from a "meta" / "links" body envelope.
// A response without any metadata is a single page.
func parsePageInfo(resp models.Response, params map[string]any, pageIndex int, pageParam string) models.PageInfo {
	var (
		current, total, count int
		next, prev            string
	)

	if h := resp.Header; h != nil {
		current = headerInt(h, "X-Page", "X-Current-Page")
		total = headerInt(h, "X-Total-Pages", "X-Page-Count")
		count = headerInt(h, "X-Total-Count", "X-Total")
		next, prev = parseLinkHeader(h.Get("Link"))
	}

	if body, ok := resp.Body.(map[string]any); ok {
		if meta, ok := body["meta"].(map[string]any); ok {
			current = firstInt(current, meta, "current_page", "page", "currentPage")
			total = firstInt(total, meta, "total_pages", "last_page", "page_count", "totalPages")
			count = firstInt(count, meta, "total", "total_count", "totalCount")
		}
		if links, ok := body["links"].(map[string]any); ok {
			if next == "" {
				next, _ = links["next"].(string)
			}
			if prev == "" {
				prev, _ = links["prev"].(string)
			}
		}
	}

	info := models.PageInfo{
		PageIndex:  pageIndex,
		TotalPages: total,
		TotalItems: count,
		NextLink:   next,
		PrevLink:   prev,
	}
	if current > 0 {
		info.PageIndex = current
	}

	switch {
	case next != "":
		info.NextParams = overlay(params, linkParams(next))
	case total > 0 && info.PageIndex < total:
		info.NextParams = overlay(params, map[string]any{pageParam: info.PageIndex + 1})
	}

	return info
}

func headerInt(h http.Header, names ...string) int {
	for _, name := range names {
		if n, err := strconv.Atoi(strings.TrimSpace(h.Get(name))); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

func firstInt(current int, obj map[string]any, keys ...string) int {
	if current > 0 {
		return current
	}
	for _, key := range keys {
		if n := toInt(obj[key]); n > 0 {
			return n
		}
	}
	return 0
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

// parseLinkHeader extracts the next and prev targets of an RFC 8288 Link
// header.
func parseLinkHeader(header string) (next, prev string) {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		target = target[1 : len(target)-1]

		for _, attr := range segments[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(attr), "=")
			if !ok || !strings.EqualFold(key, "rel") {
				continue
			}
			for _, rel := range strings.Fields(strings.Trim(value, `"`)) {
				switch strings.ToLower(rel) {
				case "next":
					next = target
				case "prev", "previous":
					prev = target
				}
			}
		}
	}
	return next, prev
}

// linkParams returns the query parameters of a pagination link.
func linkParams(link string) map[string]any {
	u, err := url.Parse(link)
	if err != nil {
		return nil
	}
	query := u.Query()
	params := make(map[string]any, len(query))
	for k, v := range query {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}

func overlay(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
