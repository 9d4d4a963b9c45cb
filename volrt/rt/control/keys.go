package control

// Key codes are lowercase ASCII for printable keys.
const (
	KeyEscape   = 27
	KeySpace    = ' '
	KeyStepUp   = 'w'
	KeyStepDown = 'e'
	KeySnapshot = 'p'
)

// Normalize folds uppercase letters onto their lowercase key code.
func Normalize(key int) int {
	if key >= 'A' && key <= 'Z' {
		return key - 'A' + 'a'
	}
	return key
}

// KeySet tracks which of the 256 key codes are held down.
type KeySet [4]uint64

func (k *KeySet) Press(key int) {
	if key < 0 || key > 255 {
		return
	}
	k[key>>6] |= 1 << (uint(key) & 63)
}

func (k *KeySet) Release(key int) {
	if key < 0 || key > 255 {
		return
	}
	k[key>>6] &^= 1 << (uint(key) & 63)
}

func (k *KeySet) Held(key int) bool {
	if key < 0 || key > 255 {
		return false
	}
	return k[key>>6]&(1<<(uint(key)&63)) != 0
}

// Each calls fn for every held key in ascending order.
func (k *KeySet) Each(fn func(key int)) {
	for w, bits := range k {
		for bits != 0 {
			b := 0
			for bits&(1<<uint(b)) == 0 {
				b++
			}
			fn(w*64 + b)
			bits &^= 1 << uint(b)
		}
	}
}
