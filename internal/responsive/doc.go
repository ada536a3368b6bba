// Package responsive produces resized variants of images referenced from
// content and form fields, and the srcset/sizes attributes pointing at them.
//
// Paths handled here are relative to the media root, the same way they
// appear in HTML ("images/joomla.png"). Variants live next to their source
// in a "responsive" folder, see imaging.CreateMultipleSizes.
package responsive
