// Package links detects meeting URLs in event descriptions.
package links

import "regexp"

// service is a known meeting provider.
type service struct {
	name    string
	pattern *regexp.Regexp
}

// services are checked in order before falling back to any URL.
var services = []service{
	{"Zoom", regexp.MustCompile(`https?://[\w.-]*zoom\.us/j/[\w?=&-]+`)},
	{"Teams", regexp.MustCompile(`https?://teams\.microsoft\.com/l/meetup-join/[\w%/-]+`)},
	{"Meet", regexp.MustCompile(`https?://meet\.google\.com/[\w-]+`)},
	{"Webex", regexp.MustCompile(`https?://[\w.-]*\.webex\.com/[\w./-]+`)},
}

var genericURL = regexp.MustCompile(`https?://[^\s<>"]+`)

// Detect finds the meeting link in text, preferring known meeting services
// over the first plain URL. It returns "" if text has no URL.
func Detect(text string) string {
	if text == "" {
		return ""
	}
	for _, s := range services {
		if match := s.pattern.FindString(text); match != "" {
			return match
		}
	}
	return genericURL.FindString(text)
}

// Service returns the name of the meeting service for a URL.
func Service(url string) string {
	for _, s := range services {
		if s.pattern.MatchString(url) {
			return s.name
		}
	}
	return "Link"
}
