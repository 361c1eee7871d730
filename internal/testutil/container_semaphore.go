// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"sync"
)

// EnvContainerParallel overrides how many SDK containers tests may run at once.
const EnvContainerParallel = "REFBRIDGE_TEST_CONTAINER_PARALLEL"

var containerSlots = sync.OnceValue(func() chan struct{} {
	return make(chan struct{}, containerParallelism())
})

// AcquireContainer blocks until a container slot is free or ctx is done. The
// returned func releases the slot. An SDK container restoring packages is
// memory hungry, so the default is min(GOMAXPROCS, 2).
func AcquireContainer(ctx context.Context) (release func(), err error) {
	slots := containerSlots()
	select {
	case slots <- struct{}{}:
		return func() { <-slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func containerParallelism() int {
	if v := os.Getenv(EnvContainerParallel); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return min(runtime.GOMAXPROCS(0), 2)
}
