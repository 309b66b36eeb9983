package enums

// NewsletterSource records where a subscription was captured.
type NewsletterSource string

const (
	NewsletterSourceFooter   NewsletterSource = "footer"
	NewsletterSourceCheckout NewsletterSource = "checkout"
	NewsletterSourcePopup    NewsletterSource = "popup"
	NewsletterSourceManual   NewsletterSource = "manual"
)

// String implements fmt.Stringer.
func (n NewsletterSource) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NewsletterSource.
func (n NewsletterSource) IsValid() bool {
	switch n {
	case NewsletterSourceFooter, NewsletterSourceCheckout, NewsletterSourcePopup, NewsletterSourceManual:
		return true
	}
	return false
}
