// Package textutil provides filename and identifier sanitization helpers.
//
// Resolved titles pass through SanitizeFileName before they are used as
// path segments; manifest set ids are derived with NormalizeID.
package textutil
