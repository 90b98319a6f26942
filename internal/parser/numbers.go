package parser

import (
	"regexp"
	"strconv"
)

func mustRegexp(pattern string) *regexp.Regexp { return regexp.MustCompile(pattern) }

func parseInt(tok string) int64 {
	v, _ := strconv.ParseInt(tok, 10, 64)
	return v
}

func parseFloat(tok string) float64 {
	v, _ := strconv.ParseFloat(tok, 64)
	return v
}
