//go:build linux && cgo
// +build linux,cgo

package buffer

/*
#cgo LDFLAGS: -lnuma
#include <numa.h>
#include <stdlib.h>
void* go_surface_numa_alloc(int size, int node) {
	if (numa_available() == -1 || node < 0) {
		return malloc(size);
	}
	return numa_alloc_onnode(size, node);
}
void go_surface_numa_free(void *mem, int size, int node) {
	if (numa_available() == -1 || node < 0) {
		free(mem);
		return;
	}
	numa_free(mem, size);
}
*/
import "C"
import "unsafe"

type platformNode struct {
	data     []byte
	numaNode int
}

// platformAlloc allocates size bytes on the current NUMA node via libnuma,
// falling back to malloc (and thus the Go GC never seeing it) when NUMA is
// unavailable. Mirrors pool.linuxNUMAAllocator.Alloc.
func platformAlloc(size int) platformNode {
	node := currentNUMANode()
	ptr := C.go_surface_numa_alloc(C.int(size), C.int(node))
	if ptr == nil {
		return platformNode{data: make([]byte, size), numaNode: -1}
	}
	return platformNode{
		data:     unsafe.Slice((*byte)(ptr), size),
		numaNode: node,
	}
}

func platformFree(data []byte, numaNode int) {
	if len(data) == 0 {
		return
	}
	C.go_surface_numa_free(unsafe.Pointer(&data[0]), C.int(len(data)), C.int(numaNode))
}

func currentNUMANode() int {
	if C.numa_available() == -1 {
		return -1
	}
	return int(C.numa_preferred())
}
