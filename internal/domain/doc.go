// Package domain resolves the location shown in a diary entry title.
//
// # Sources
//
// A location can come from three places, tried in order:
//
//	FromMessage        a place named inside the entry text itself
//	FromUserConfig     the default the user saved with the location command
//	FromSystemDefault  the service-wide DEFAULT_LOCATION
//
// The first source that yields a value wins. Absence is data, not an error:
// [Resolver.Resolve] never fails for normal input, and a broken config store
// degrades to the next tier.
//
// # Message Extraction
//
// Two techniques run over the normalized text:
//
//	Bare mention   "杭州西湖边散步" contains the display name "杭州"
//	Cue pattern    "来北京出差了" has the lead-in cue "来" before "北京"
//
// The bare scan picks the longest registered display name present, so a
// longer name such as "上海浦东" shadows "上海" when both occur. Equal-length
// names fall back to the earliest position in the text.
//
// Cue patterns are best-effort. A captured span is only accepted when it
// resolves through the dictionary, by display name, by canonical id ("去Hangzhou")
// or with an administrative suffix removed ("到杭州市"). When both techniques
// match different places the bare mention wins.
//
// # Normalization
//
// Text and display names are compared after NFKC normalization and Unicode
// case folding, so full-width letters and "HANGZHOU"/"hangzhou" compare equal.
// See [Normalize].
//
// # Dictionary Lifecycle
//
// The dictionary is built once at process start from the embedded table in
// locations.yaml plus optional operator files, then shared read-only. A display
// name registered twice with different canonical ids is a
// [DuplicateLocationError] and stops startup.
package domain
