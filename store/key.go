package store

import "github.com/OneOfOne/xxhash"

// keySeed mirrors the teacher's use of a fixed seed constant alongside
// ChecksumString64S (cluster/map.go uses cmn.MLCG32 as its node-id
// digest seed); any fixed value works, it just needs to be stable across
// the process lifetime.
const keySeed = 0x9E3779B97F4A7C15

// itemKey digests a (uuid, dataItemId) pair into the 64-bit key
// hashCurrent/hashLast are indexed by. Using a digest instead of the
// concatenated string as the map key avoids keeping that string alive
// for the life of the entry, the same trick the teacher applies to
// cluster node lookups (cluster/map.go: `idDigest =
// xxhash.ChecksumString64S(...)`). Collisions are not disambiguated — at
// this table's cardinality (data items per process) a 64-bit digest
// collision is not a practical concern, and the teacher's code makes the
// identical trade-off for node ids.
func itemKey(uuid, dataItemID string) uint64 {
	return xxhash.ChecksumString64S(uuid+"/"+dataItemID, keySeed)
}
