package domain

// GalleryView holds the two derived views of one pass.
// All is in token id order; Mine is a subsequence of All.
type GalleryView struct {
	All  []TokenRecord `json:"all"`
	Mine []TokenRecord `json:"mine"`
}

// SkippedToken records a token id that did not make it into All.
type SkippedToken struct {
	TokenID uint64     `json:"tokenId"`
	Reason  SkipReason `json:"reason"`
	Detail  string     `json:"detail,omitempty"`
}

// Find returns the record with the given token id from All.
func (v GalleryView) Find(tokenID uint64) (TokenRecord, bool) {
	for _, r := range v.All {
		if r.TokenID == tokenID {
			return r, true
		}
	}
	return TokenRecord{}, false
}
