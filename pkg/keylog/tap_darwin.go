//go:build darwin

package keylog

/*
#cgo darwin LDFLAGS: -framework CoreGraphics -framework ApplicationServices
#include <ApplicationServices/ApplicationServices.h>
#include <CoreFoundation/CoreFoundation.h>
#include <stdint.h>

static Boolean axCheckTrusted(void) {
        const void *keys[] = { kAXTrustedCheckOptionPrompt };
        const void *values[] = { kCFBooleanTrue };
        CFDictionaryRef options = CFDictionaryCreate(kCFAllocatorDefault, keys, values, 1,
                                                     &kCFTypeDictionaryKeyCallBacks,
                                                     &kCFTypeDictionaryValueCallBacks);
        Boolean trusted = AXIsProcessTrustedWithOptions(options);
        CFRelease(options);
        return trusted;
}

extern CGEventRef goHandleKeyEvent(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *userInfo);

static CFRunLoopSourceRef startKeyTap(uintptr_t handle, CFMachPortRef *tapOut) {
        CGEventMask mask = (((CGEventMask)1) << kCGEventKeyDown) |
                           (((CGEventMask)1) << kCGEventKeyUp) |
                           (((CGEventMask)1) << kCGEventFlagsChanged);
        CFMachPortRef tap = CGEventTapCreate(kCGSessionEventTap,
                                             kCGHeadInsertEventTap,
                                             kCGEventTapOptionListenOnly,
                                             mask,
                                             goHandleKeyEvent,
                                             (void *)handle);
        if (tap == NULL) {
                return NULL;
        }
        CGEventTapEnable(tap, true);
        CFRunLoopSourceRef source = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, tap, 0);
        *tapOut = tap;
        return source;
}

static void reenableTap(CFMachPortRef tap) {
        CGEventTapEnable(tap, true);
}

static CFRunLoopRef currentRunLoop(void) {
        return CFRunLoopGetCurrent();
}

static void addSourceToRunLoop(CFRunLoopRef loop, CFRunLoopSourceRef source) {
        CFRunLoopAddSource(loop, source, kCFRunLoopCommonModes);
}

static void runCurrentRunLoop(void) {
        CFRunLoopRun();
}

static void stopRunLoop(CFRunLoopRef loop) {
        CFRunLoopStop(loop);
}

static int64_t eventKeycode(CGEventRef event) {
        return CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);
}

static uint64_t eventFlags(CGEventRef event) {
        return (uint64_t)CGEventGetFlags(event);
}
*/
import "C"

import (
	"context"
	"errors"
	"runtime"
	"runtime/cgo"
	"sync"
	"time"
	"unsafe"
)

type quartzSource struct {
	now func() time.Time
}

// DefaultSource returns the Quartz keyboard tap. It prompts for Accessibility trust
// and fails with ErrAccessibilityPermission until the user grants it.
func DefaultSource(clock func() time.Time) Source {
	if clock == nil {
		clock = time.Now
	}
	return &quartzSource{now: clock}
}

type quartzStream struct {
	emit     func(Event) error
	now      func() time.Time
	tap      C.CFMachPortRef
	stopLoop func()
	errMu    sync.Mutex
	err      error
}

func (s *quartzStream) setErr(err error) {
	s.errMu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.errMu.Unlock()
}

func (s *quartzStream) failed() bool {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err != nil
}

func (s *quartzStream) emitEvent(event Event) {
	if s.failed() {
		return
	}
	if err := s.emit(event); err != nil {
		s.setErr(err)
		s.stopLoop()
	}
}

func (s *quartzStream) handle(eventType C.CGEventType, event C.CGEventRef) {
	code := int(C.eventKeycode(event))
	name := KeyName(code)
	switch eventType {
	case C.kCGEventKeyDown:
		s.emitEvent(Event{Time: s.now(), Name: name, Type: KeyDown})
	case C.kCGEventKeyUp:
		s.emitEvent(Event{Time: s.now(), Name: name, Type: KeyUp})
	case C.kCGEventFlagsChanged:
		types, ok := modifierTransition(code, uint64(C.eventFlags(event)))
		if !ok {
			return
		}
		ts := s.now()
		for _, typ := range types {
			s.emitEvent(Event{Time: ts, Name: name, Type: typ})
		}
	}
}

func (s *quartzSource) Stream(ctx context.Context, emit func(Event) error) error {
	if C.axCheckTrusted() == C.Boolean(0) {
		return ErrAccessibilityPermission
	}
	if ctx == nil {
		ctx = context.Background()
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	stream := &quartzStream{emit: emit, now: s.now}
	handle := cgo.NewHandle(stream)
	defer handle.Delete()

	var tap C.CFMachPortRef
	source := C.startKeyTap(C.uintptr_t(handle), &tap)
	if source == 0 {
		return errors.New("failed to create CGEvent tap")
	}
	defer C.CFRelease(C.CFTypeRef(source))
	defer C.CFRelease(C.CFTypeRef(tap))
	stream.tap = tap

	loop := C.currentRunLoop()
	var stopOnce sync.Once
	stream.stopLoop = func() {
		stopOnce.Do(func() {
			C.stopRunLoop(loop)
		})
	}
	C.addSourceToRunLoop(loop, source)

	done := make(chan struct{})
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		select {
		case <-ctx.Done():
			stream.stopLoop()
		case <-done:
		}
	}()

	C.runCurrentRunLoop()
	close(done)
	<-watcherDone

	stream.errMu.Lock()
	err := stream.err
	stream.errMu.Unlock()
	if err != nil {
		return err
	}
	return ctx.Err()
}

//export goHandleKeyEvent
func goHandleKeyEvent(_ C.CGEventTapProxy, eventType C.CGEventType, event C.CGEventRef, userInfo unsafe.Pointer) C.CGEventRef {
	stream, ok := cgo.Handle(uintptr(userInfo)).Value().(*quartzStream)
	if !ok {
		return event
	}

	switch eventType {
	case C.kCGEventKeyDown, C.kCGEventKeyUp, C.kCGEventFlagsChanged:
		stream.handle(eventType, event)
	case C.kCGEventTapDisabledByTimeout, C.kCGEventTapDisabledByUserInput:
		C.reenableTap(stream.tap)
	}
	return event
}
