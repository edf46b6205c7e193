package village

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

// StateDigest hashes every piece of state that influences future days. Two
// villages with equal digests evolve identically under the same commands.
func (v *Village) StateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteI64(h, &tmp, int64(v.daysGone))
	digestWriteI64(h, &tmp, int64(v.maxWorkers))
	h.Write([]byte{boolByte(v.gameOver), boolByte(v.hadWorkers)})
	digestWriteString(h, &tmp, string(v.outcome))

	l := v.ledger
	for _, n := range []int{l.Food, l.Wood, l.Metal, l.WoodPerDay, l.MetalPerDay, l.FoodPerDay} {
		digestWriteI64(h, &tmp, int64(n))
	}

	v.digestRules(h, &tmp)

	digestWriteI64(h, &tmp, int64(len(v.workers)))
	for _, w := range v.workers {
		digestWriteString(h, &tmp, w.Name)
		h.Write([]byte{byte(w.Occupation), boolByte(w.Alive)})
		digestWriteI64(h, &tmp, int64(w.DaysHungry))
	}
	digestWriteI64(h, &tmp, int64(len(v.projects)))
	for _, p := range v.projects {
		digestWriteString(h, &tmp, p.Name)
		digestWriteI64(h, &tmp, int64(p.DaysLeft))
		digestWriteI64(h, &tmp, int64(p.BuildDays))
		digestWriteI64(h, &tmp, int64(p.StartedDay))
	}
	digestWriteI64(h, &tmp, int64(len(v.buildings)))
	for _, b := range v.buildings {
		digestWriteString(h, &tmp, b.Name)
		digestWriteI64(h, &tmp, int64(b.CompletedDay))
		e := b.Effect
		for _, n := range []int{e.WoodPerDay, e.MetalPerDay, e.FoodPerDay, e.MaxWorkers} {
			digestWriteI64(h, &tmp, int64(n))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (v *Village) digestRules(h hashWriter, tmp *[8]byte) {
	digestWriteI64(h, tmp, int64(v.tune.StarvationDays))
	digestWriteString(h, tmp, v.ration.Name())
	h.Write([]byte{boolByte(v.build.RequireBuilder)})
	digestWriteI64(h, tmp, int64(v.build.BuilderBonus))

	occs := make([]Occupation, 0, len(v.yields))
	for o := range v.yields {
		occs = append(occs, o)
	}
	sort.Slice(occs, func(i, j int) bool { return occs[i] < occs[j] })
	for _, o := range occs {
		y := v.yields[o]
		if y.Food == 0 && y.Wood == 0 && y.Metal == 0 {
			continue
		}
		h.Write([]byte{byte(o)})
		digestWriteI64(h, tmp, int64(y.Food))
		digestWriteI64(h, tmp, int64(y.Wood))
		digestWriteI64(h, tmp, int64(y.Metal))
	}
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
