package board

var backRank = [Size]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewStandard returns the opening position: regular chess ranks with black
// on rows 0-1 and white on rows 6-7, plus a white ogre on (5,5) and a black
// jumper on (2,2).
func NewStandard() *Board {
	b := New()
	for x := 0; x < Size; x++ {
		mustPlace(b, backRank[x], Black, x, 0)
		mustPlace(b, Pawn, Black, x, 1)
		mustPlace(b, Pawn, White, x, 6)
		mustPlace(b, backRank[x], White, x, 7)
	}
	mustPlace(b, Ogre, White, 5, 5)
	mustPlace(b, Jumper, Black, 2, 2)
	return b
}

// PawnStartRow is the row pawns of color begin on.
func PawnStartRow(c Color) int {
	if c == White {
		return 6
	}
	return 1
}

func mustPlace(b *Board, k Kind, c Color, x, y int) {
	if _, err := b.Place(k, c, x, y); err != nil {
		panic(err)
	}
}
