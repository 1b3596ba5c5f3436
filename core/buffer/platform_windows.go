//go:build windows
// +build windows

package buffer

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

type platformNode struct {
	data     []byte
	numaNode int
}

var (
	kern32                  = windows.NewLazySystemDLL("kernel32.dll")
	procVirtualAllocExNuma  = kern32.NewProc("VirtualAllocExNuma")
	procVirtualFree         = kern32.NewProc("VirtualFree")
	procGetNumaProcessorNode = kern32.NewProc("GetNumaProcessorNodeEx")
)

// platformAlloc mirrors pool.windowsNUMAAllocator.Alloc: VirtualAllocExNuma
// against the current process, falling back to a plain Go slice on failure.
func platformAlloc(size int) platformNode {
	node := currentNUMANode()
	hProc := windows.CurrentProcess()
	ptr, _, _ := procVirtualAllocExNuma.Call(
		uintptr(hProc),
		0,
		uintptr(size),
		uintptr(windows.MEM_RESERVE|windows.MEM_COMMIT),
		uintptr(windows.PAGE_READWRITE),
		uintptr(node),
	)
	if ptr == 0 {
		return platformNode{data: make([]byte, size), numaNode: -1}
	}
	return platformNode{
		data:     unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size),
		numaNode: node,
	}
}

func platformFree(data []byte, numaNode int) {
	if len(data) == 0 {
		return
	}
	addr := uintptr(unsafe.Pointer(&data[0]))
	const memRelease = 0x8000
	procVirtualFree.Call(addr, 0, memRelease)
}

func currentNUMANode() int {
	var node uint16
	ok, _, _ := procGetNumaProcessorNode.Call(0, uintptr(unsafe.Pointer(&node)))
	if ok == 0 {
		return -1
	}
	return int(node)
}
