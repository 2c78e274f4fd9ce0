// Package typedstorage is a statically typed layer over a string-keyed,
// string-valued [storage.Store].
//
// Each key is declared once together with the Go type of its value:
//
//	var (
//		schema   = typedstorage.NewSchema()
//		Profile  = typedstorage.Define[User](schema, "profile")
//		Visits   = typedstorage.Define[int](schema, "visits")
//	)
//
// Values are encoded to text (JSON by default) on write and decoded back on
// read, so the compiler checks that a key is only ever used with its type:
//
//	s := typedstorage.New(memory.NewBackend(), typedstorage.WithSchema(schema))
//
//	err := typedstorage.SetItem(ctx, s, Profile, User{Name: "gopher"})
//	...
//	user, err := typedstorage.GetItem(ctx, s, Profile)
//	if errors.Is(err, typedstorage.ErrNotFound) {
//		...
//	}
//
// The Storage itself holds no state besides its configuration; persistence,
// atomicity and merge mechanics belong to the store.
package typedstorage
