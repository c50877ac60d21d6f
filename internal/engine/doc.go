// Package engine contains the tagging mechanic that keeps creatures juvenile.
//
// The Engine does NOT own entities. The host world delivers events to
// Engine.Deliver; the systems react, keep the tag cache consistent with the
// persistent property and ask the host to re-fire the born signal.
package engine
