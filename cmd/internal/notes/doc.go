// Package notes stores and validates per-account notes.
//
// Every operation is scoped to an owner email resolved by the auth guard; a
// note id the mobile client chose (noteIdMobile) addresses a note within
// that owner.
package notes
