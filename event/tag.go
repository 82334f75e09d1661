package event

import "strings"

// Standard short tags. Drivers normalise long-form tags
// ("tag:yaml.org,2002:str") to these before emitting events.
const (
	TagNull   = "!!null"
	TagBool   = "!!bool"
	TagInt    = "!!int"
	TagFloat  = "!!float"
	TagStr    = "!!str"
	TagBinary = "!!binary"
	TagSeq    = "!!seq"
	TagMap    = "!!map"
	TagMerge  = "!!merge"
)

const longTagPrefix = "tag:yaml.org,2002:"

// ShortTag rewrites a long-form standard tag to its !! short form and
// leaves everything else untouched.
func ShortTag(tag string) string {
	if strings.HasPrefix(tag, longTagPrefix) {
		return "!!" + tag[len(longTagPrefix):]
	}
	return tag
}

// IsStandardTag reports whether tag is one of the resolved standard tags.
func IsStandardTag(tag string) bool {
	switch tag {
	case TagNull, TagBool, TagInt, TagFloat, TagStr, TagBinary, TagSeq, TagMap, TagMerge, "!!timestamp":
		return true
	}
	return false
}

// LocalTagName extracts the bare name from a local tag: "!Name" or
// "!!Name" (a non-standard secondary tag) yields "Name". The second result
// reports whether the tag used the secondary "!!" form.
func LocalTagName(tag string) (name string, secondary bool, ok bool) {
	if tag == "" || IsStandardTag(tag) {
		return "", false, false
	}
	if strings.HasPrefix(tag, "!!") {
		return tag[2:], true, true
	}
	if strings.HasPrefix(tag, "!") {
		return tag[1:], false, true
	}
	return "", false, false
}
