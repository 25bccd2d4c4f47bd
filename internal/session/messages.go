package session

import (
	"fmt"
	"strings"
)

const (
	msgWelcome      = "Welcome to the Smart Storage System. Press the doorbell if you're a valid user."
	msgUserDetected = "User detected. Processing face recognition..."
	msgScanning     = "Scanning in progress, please stand by..."
	msgScanningTag  = "Scanning for AprilTag..."
	msgUnrecognized = "Access denied. Unrecognized user."
	msgUnknownTag   = "Access denied. Unknown tag."
	msgNoUser       = "Timing out... No user detected!"
	msgNoTag        = "Timing out... No AprilTag detected!"
	msgNoLocker     = "No locker is available."
)

func msgCollect(name string, lockers []int) string {
	if len(lockers) == 1 {
		return fmt.Sprintf("Hey %s, you may collect your package at locker %d!", name, lockers[0])
	}
	return fmt.Sprintf("Hey %s, you may collect your packages in lockers %s!", name, joinLockers(lockers))
}

func msgNoPackages(name string) string {
	return fmt.Sprintf("Hey %s, you have no packages.", name)
}

func msgNotified(name string) string {
	return fmt.Sprintf("Email notification sent to %s.", name)
}

func msgPlace(locker int) string {
	return fmt.Sprintf("Hello Delivery Man, you may place the package in locker %d, then press the close button.", locker)
}

func msgEvicted(locker int) string {
	return fmt.Sprintf("Take the previous package back to USPS. Locker %d will open for the new package. Press the close button when done!", locker)
}

func msgClosing(locker int) string {
	return fmt.Sprintf("Locker %d is closing!", locker)
}

func joinLockers(lockers []int) string {
	parts := make([]string, len(lockers))
	for i, id := range lockers {
		parts[i] = fmt.Sprint(id)
	}
	if len(parts) <= 2 {
		return strings.Join(parts, " and ")
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
