package parse

import "strings"

const (
	securePrefix   = "https://" // Exercise hrefs starting with this are already absolute
	parentRelative = "../"      // Exercise hrefs starting with this are resolved against the site root
	parentSegment  = ".."
)

// ExerciseLink converts an href found inside a subsection block into an absolute exercise URL.
//
// Rules, in order: an empty href is rejected; an href starting with "https://" is returned as-is;
// an href starting with "../" has every ".." segment removed and the remaining segments joined
// onto siteRoot; anything else (fragments, root-relative premium links, other schemes) is rejected.
// siteRoot must not end with a slash.
func ExerciseLink(siteRoot, href string) (string, bool) {
	switch {
	case href == "":
		return "", false
	case strings.HasPrefix(href, securePrefix):
		return href, true
	case strings.HasPrefix(href, parentRelative):
		segments := strings.Split(href, "/")
		kept := segments[:0]
		for _, seg := range segments {
			if seg != parentSegment {
				kept = append(kept, seg)
			}
		}
		return siteRoot + "/" + strings.Join(kept, "/"), true
	default:
		return "", false
	}
}

// CategoryLink converts an href found on the directory page into an absolute category URL.
// Hrefs that already begin with "https" are kept, everything else is appended to listBase.
func CategoryLink(listBase, href string) string {
	if strings.HasPrefix(href, "https") {
		return href
	}
	return listBase + href
}
