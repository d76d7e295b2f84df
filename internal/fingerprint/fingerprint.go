package fingerprint

import (
	"crypto/md5"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"image"
	"strings"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/media"
	"media-catalog/internal/metrics"

	"github.com/corona10/goimagehash"
	"golang.org/x/crypto/blake2b"
)

// Algorithm names a hash algorithm.
type Algorithm string

const (
	SHA512  Algorithm = "sha512"
	MD5     Algorithm = "md5"
	BLAKE2B Algorithm = "blake2b"
	PHash   Algorithm = "phash"
	DHash   Algorithm = "dhash"
)

// CorruptedMessage is recorded on assets whose bytes cannot be decoded.
const CorruptedMessage = "The asset is corrupted"

// ParseAlgorithm converts a configured name into an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch alg := Algorithm(strings.ToLower(strings.TrimSpace(name))); alg {
	case SHA512, MD5, BLAKE2B, PHash, DHash:
		return alg, nil
	case "":
		return SHA512, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm %q", name)
	}
}

// Result is the metadata derived from an asset's bytes.
type Result struct {
	Size             int64
	Width            int
	Height           int
	Rotation         catalog.Rotation
	Corrupted        bool
	CorruptedMessage string
	Hash             string
}

// Fingerprinter computes Results with a fixed hash algorithm.
type Fingerprinter struct {
	algorithm Algorithm
}

// New creates a Fingerprinter. An empty algorithm selects SHA-512.
func New(algorithm Algorithm) *Fingerprinter {
	if algorithm == "" {
		algorithm = SHA512
	}
	return &Fingerprinter{algorithm: algorithm}
}

// Algorithm returns the configured hash algorithm.
func (f *Fingerprinter) Algorithm() Algorithm {
	return f.algorithm
}

// Fingerprint never fails: undecodable data is reported through the
// Corrupted flag with zero dimensions and rotation.
func (f *Fingerprinter) Fingerprint(data []byte) Result {
	start := time.Now()
	defer func() {
		metrics.FingerprintDuration.WithLabelValues(string(f.algorithm)).Observe(time.Since(start).Seconds())
	}()

	res := Result{Size: int64(len(data))}

	img, _, err := media.Decode(data)
	if err != nil {
		res.Corrupted = true
		res.CorruptedMessage = CorruptedMessage
		metrics.FingerprintCorruptTotal.Inc()
	} else {
		b := img.Bounds()
		res.Width = b.Dx()
		res.Height = b.Dy()
		res.Rotation = media.RotationForOrientation(media.ReadOrientation(data))
	}

	res.Hash = f.hash(data, img)
	return res
}

func (f *Fingerprinter) hash(data []byte, img image.Image) string {
	switch f.algorithm {
	case MD5:
		sum := md5.Sum(data)
		return hex.EncodeToString(sum[:])
	case BLAKE2B:
		sum := blake2b.Sum512(data)
		return hex.EncodeToString(sum[:])
	case PHash:
		if img != nil {
			if h, err := goimagehash.PerceptionHash(img); err == nil {
				return formatHash(h.GetHash())
			}
		}
	case DHash:
		if img != nil {
			if h, err := goimagehash.DifferenceHash(img); err == nil {
				return formatHash(h.GetHash())
			}
		}
	}
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}

func formatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}
