package testing

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/dLock/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementation
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("SetIfUnset", func(b *testing.B) {
			benchmarkSetIfUnset(b, factory())
		})

		b.Run("GetSet", func(b *testing.B) {
			benchmarkGetSet(b, factory())
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory())
		})

		b.Run("LockCycle", func(b *testing.B) {
			benchmarkLockCycle(b, factory())
		})
	})
}

func benchmarkSetIfUnset(b *testing.B, database db.KVDB) {
	defer database.Close()
	var index atomic.Uint64
	value := []byte("token")
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := index.Add(1)
			database.SetIfUnset(fmt.Sprintf("key-%d", i), value, i)
		}
	})
}

func benchmarkGetSet(b *testing.B, database db.KVDB) {
	defer database.Close()
	var index atomic.Uint64
	value := []byte("token")
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := index.Add(1)
			database.GetSet(fmt.Sprintf("key-%d", i%1024), value, i)
		}
	})
}

func benchmarkGet(b *testing.B, database db.KVDB) {
	defer database.Close()
	for i := 0; i < 1024; i++ {
		database.SetIfUnset(fmt.Sprintf("key-%d", i), []byte("token"), uint64(i+1))
	}
	var index atomic.Uint64
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			database.Get(fmt.Sprintf("key-%d", index.Add(1)%1024))
		}
	})
}

// benchmarkLockCycle measures an uncontended acquire/release pair on distinct keys
func benchmarkLockCycle(b *testing.B, database db.KVDB) {
	defer database.Close()
	var index atomic.Uint64
	value := []byte("token")
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := index.Add(2)
			key := fmt.Sprintf("lock-%d", i%4096)
			if database.SetIfUnset(key, value, i-1) {
				database.Delete(key, i)
			}
		}
	})
}
