// Package sesame is a client for the CANDY HOUSE Sesame cloud API.
//
// A Client owns one Session. The Session holds the transport and the
// authentication token; every Device returned by ListDevices or GetDevice
// keeps a pointer to that same Session, so a Login is visible to all of them.
//
// Basic usage:
//
//	client := sesame.NewClient(sesame.WithTimeout(10 * time.Second))
//	if err := client.Login(ctx, email, password); err != nil {
//	    return err
//	}
//	devices, err := client.ListDevices(ctx)
//	if err != nil {
//	    return err
//	}
//	for _, d := range devices {
//	    if err := d.Lock(ctx); errors.Is(err, sesame.ErrInvalidTransition) {
//	        continue // already locked
//	    }
//	}
//
// The Device cache is optimistic. If a lock is operated from elsewhere the
// cached state goes stale until the device is fetched again with GetDevice.
package sesame
