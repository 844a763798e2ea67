// Package app holds the app manifest registry and the foreground app
// lifecycle.
//
// Apps are launched onto a Stack. Starting an app hides the current one;
// stopping it shows the previous app again and hands it the stopped app's
// result, keyed by the launch id returned at start:
//
//	Created -> Started -> Shown <-> Hidden -> Stopped
//
// Stack transitions run on the UI goroutine. Loader is the thread-safe
// entry point: it reserves a launch id and dispatches the transition onto
// the UI dispatcher.
package app
