package changeset

import (
	"regexp"
	"strconv"
)

var numberedTitle = regexp.MustCompile(`^(.*)_(\d+)$`)

// maxSafeInteger is the largest integer the server stores without loss.
const maxSafeInteger = 1<<53 - 1

// SuggestUnDupTitle proposes a new title after a duplicate title rejection:
// "title" becomes "title_2" and a numeric suffix is incremented.
func SuggestUnDupTitle(title string) string {
	m := numberedTitle.FindStringSubmatch(title)
	if m == nil {
		return title + "_2"
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return title + "_2"
	}
	return m[1] + "_" + strconv.Itoa(n+1)
}

// PinNumber returns the pin value for a newly pinned page. Later pins get
// smaller values so they sort before older ones.
func PinNumber() int64 {
	return maxSafeInteger - now().Unix()
}
