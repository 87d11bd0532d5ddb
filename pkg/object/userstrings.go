package object

import (
	"github.com/google/uuid"

	"geomcore/pkg/archive"
	"geomcore/pkg/extension"
)

// UserString is one key/value entry of the per-object string list.
type UserString struct {
	Key   string
	Value string
}

// userStringsItemID is the well-known identifier of the built-in user
// string extension item. One object carries at most one such item.
var userStringsItemID = uuid.MustParse("3ba601a4-7bf2-4f68-8c21-d6dc70f06a4d")

// userStringsItem stores the key/value list as a regular extension item,
// so it follows the same copy, merge and purge rules as any other
// side-data. The propagation count of 1 makes the list survive copies.
type userStringsItem struct {
	extension.ItemBase
	entries []UserString
}

func newUserStringsItem() *userStringsItem {
	return &userStringsItem{ItemBase: extension.NewItemBase(userStringsItemID, 1)}
}

// Clone deep copies the entry list.
func (u *userStringsItem) Clone() extension.Item {
	c := newUserStringsItem()
	c.SetPropagationCount(u.PropagationCount())
	c.entries = append([]UserString(nil), u.entries...)
	return c
}

func (u *userStringsItem) find(key string) int {
	for i, e := range u.entries {
		if e.Key == key {
			return i
		}
	}
	return -1
}

func (u *userStringsItem) writeTo(w *archive.Writer) {
	w.WriteUint32(uint32(len(u.entries)))
	for _, e := range u.entries {
		w.WriteString(e.Key)
		w.WriteString(e.Value)
	}
}

func (u *userStringsItem) readFrom(r *archive.Reader) {
	n := r.ReadUint32()
	u.entries = nil
	for i := uint32(0); i < n && r.Ok(); i++ {
		key := r.ReadString()
		value := r.ReadString()
		u.entries = append(u.entries, UserString{Key: key, Value: value})
	}
}

// userStrings returns the object's string list item, creating it when
// create is set.
func (b *Base) userStrings(create bool) *userStringsItem {
	if it := b.ext.Lookup(userStringsItemID); it != nil {
		if us, ok := it.(*userStringsItem); ok {
			return us
		}
		return nil
	}
	if !create {
		return nil
	}
	us := newUserStringsItem()
	if !b.ext.Attach(us) {
		return nil
	}
	return us
}

// SetUserString attaches a key/value string to the object. An empty
// value removes the entry with that key. The list persists through copy,
// assignment and archive round trips. It reports whether the list
// changed.
func (b *Base) SetUserString(key, value string) bool {
	if key == "" {
		return false
	}
	if value == "" {
		us := b.userStrings(false)
		if us == nil {
			return false
		}
		i := us.find(key)
		if i < 0 {
			return false
		}
		us.entries = append(us.entries[:i], us.entries[i+1:]...)
		if len(us.entries) == 0 {
			b.ext.Detach(us)
		}
		return true
	}
	us := b.userStrings(true)
	if us == nil {
		return false
	}
	if i := us.find(key); i >= 0 {
		us.entries[i].Value = value
		return true
	}
	us.entries = append(us.entries, UserString{Key: key, Value: value})
	return true
}

// UserString returns the value stored under key.
func (b *Base) UserString(key string) (string, bool) {
	us := b.userStrings(false)
	if us == nil {
		return "", false
	}
	if i := us.find(key); i >= 0 {
		return us.entries[i].Value, true
	}
	return "", false
}

// UserStringCount returns the number of entries in the string list.
func (b *Base) UserStringCount() int {
	us := b.userStrings(false)
	if us == nil {
		return 0
	}
	return len(us.entries)
}

// UserStrings returns a copy of the string list in insertion order.
func (b *Base) UserStrings() []UserString {
	us := b.userStrings(false)
	if us == nil {
		return nil
	}
	return append([]UserString(nil), us.entries...)
}

// UserStringKeys returns the keys of the string list in insertion order.
func (b *Base) UserStringKeys() []string {
	us := b.userStrings(false)
	if us == nil {
		return nil
	}
	keys := make([]string, len(us.entries))
	for i, e := range us.entries {
		keys[i] = e.Key
	}
	return keys
}

// WriteUserStrings serializes the string list. Concrete Write
// implementations call it so the list survives archive round trips.
func (b *Base) WriteUserStrings(w *archive.Writer) bool {
	us := b.userStrings(false)
	if us == nil {
		w.WriteUint32(0)
		return w.Ok()
	}
	us.writeTo(w)
	return w.Ok()
}

// ReadUserStrings reconstructs the list written by WriteUserStrings,
// replacing any current entries.
func (b *Base) ReadUserStrings(r *archive.Reader) bool {
	fresh := newUserStringsItem()
	fresh.readFrom(r)
	if !r.Ok() {
		return false
	}
	if existing := b.userStrings(false); existing != nil {
		b.ext.Detach(existing)
	}
	if len(fresh.entries) > 0 {
		b.ext.Attach(fresh)
	}
	return true
}
