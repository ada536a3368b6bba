// Package media validates uploads and answers questions about media files:
// whether a name is an image, which MIME type a file has, how many media
// entries a folder holds and how large an image should be drawn.
//
// Upload validation (Helper.CanUpload) runs an ordered list of checks and
// fails with an *UploadError carrying a stable message key, so callers can
// translate or map the failure without parsing text.
package media
