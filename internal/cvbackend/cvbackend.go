// Package cvbackend decodes frames and detects faces with OpenCV through
// gocv. It is only functional in binaries built with the gocv tag.
package cvbackend

import "errors"

// ErrUnavailable is returned by every constructor when the binary was built
// without OpenCV support, or when OpenCV cannot open the requested resource.
var ErrUnavailable = errors.New("cvbackend: opencv unavailable")
