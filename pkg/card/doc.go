// Package card turns sparse card records into total display views.
//
// A Card is whatever JSON object the card service hands us: any subset of the
// canonical field names, with values of any JSON type. An OwnerProfile is the
// same kind of record describing the card's owner and is consulted only as a
// fallback source.
//
// [Resolve] merges both into a [View], the ResolvedCardView consumed by the
// renderer. The fallback chain is fixed and total:
//
//	card[field] -> owner[mapped field] -> Defaults[field]
//
// so every field of a View always has a value. Resolve never fails: values of
// unexpected types are coerced by the stringify policy documented on
// [Stringify] and [CountOf].
//
// # Usage
//
//	c, err := card.ReadFile("jane.json")
//	if err != nil {
//	    return err
//	}
//	view := card.Resolve(c, nil)
//	view.Text(card.FullName) // "Jane Doe"
//	view.Text(card.Email)    // "email@example.com" when absent
//	view.Count(card.Views)   // 0 when absent
package card
