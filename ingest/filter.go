package ingest

import "regexp"

// relevantPattern accepts Ethiopian and Eritrean music content by keyword
// match on title or channel, in Latin script and in Ge'ez script.
var relevantPattern = regexp.MustCompile(`(?i)ethiopian|ethiopia|amharic|oromo|oromoo|tigrigna|tigrinya|eritrean|eritrea|addis|habesha|gurage|የኢትዮጵያ|አማርኛ|ኦሮሚያ|ትግርኛ`)

// excludedPattern drops religious worship content regardless of other
// keyword matches.
var excludedPattern = regexp.MustCompile(`(?i)worship|gospel`)

// Relevant reports whether a video belongs in the catalog, judged on its
// title and channel name. Exclusion wins over inclusion.
func Relevant(title, channel string) bool {
	if excludedPattern.MatchString(title) || excludedPattern.MatchString(channel) {
		return false
	}
	return relevantPattern.MatchString(title) || relevantPattern.MatchString(channel)
}
